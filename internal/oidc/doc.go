/*
Package oidc fetches the OpenID Connect discovery document of an issuer.

The document lives at a well-known path below the issuer:

	https://issuer.example.com/.well-known/openid-configuration

Only the "issuer" and "jwks_uri" members are read. The request honours the
caller's context and http.Client; a non-200 status, an undecodable body, a
missing jwks_uri or an issuer that differs from the requested one (ignoring a
trailing slash) are all errors.

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL)
	if err != nil {
	    return err
	}
	fmt.Println(endpoints.JWKSURI)
*/
package oidc
