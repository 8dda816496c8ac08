// Package flow maps external authorization surfaces onto the token
// lifecycle service.
//
// Each inbound surface (consumer registration, request token issuance,
// resource-owner authorization, access token exchange and invalidation)
// becomes one Op dispatched through the Controller, so transports stay
// thin and every protocol binding shares the same validation and error
// envelopes.
package flow
