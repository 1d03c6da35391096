/*
Package jwtguard provides net/http middleware that admits only requests
carrying a valid bearer token.

The middleware reads the raw Authorization header, hands it to a
*core.Core and either stores the resulting claims in the request context or
rejects the request through an ErrorHandler.

# Quick Start

	resolver, err := keys.NewStaticResolver(publicKey)
	if err != nil {
	    log.Fatal(err)
	}
	v, err := validator.New(validator.WithAlgorithm(validator.RS256))
	if err != nil {
	    log.Fatal(err)
	}
	c, err := core.New(core.WithKeyResolver(resolver), core.WithVerifier(v))
	if err != nil {
	    log.Fatal(err)
	}

	middleware, err := jwtguard.New(jwtguard.WithCore(c))
	if err != nil {
	    log.Fatal(err)
	}
	http.Handle("/api/", middleware.CheckJWT(apiHandler))

# Accessing Claims

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    claims, err := jwtguard.GetClaims[*validator.ValidatedClaims](r.Context())
	    if err != nil {
	        http.Error(w, "no claims", http.StatusInternalServerError)
	        return
	    }
	    fmt.Fprintln(w, claims.RegisteredClaims.Subject)
	}

# Error Responses

DefaultErrorHandler answers with a JSON body of the form

	{"error":"token_expired","message":"JWT token expired."}

The status is 400 for a missing header, 401 with
`WWW-Authenticate: Bearer error="invalid_token"` for every other validation
kind and 500 when no key could be resolved. Messages are fixed strings and
never echo the token.

# Observability

WithLogger accepts any slog-style logger; NewLogrusLogger and
NewZerologLogger adapt logrus and zerolog. WithMetrics records the outcome of
every validation, and NewPrometheusMetrics exports them as
jwtguard_validations_total and jwtguard_validation_duration_seconds. Spans
are created by core when it is given Tracer(provider) through
core.WithTracer.
*/
package jwtguard
