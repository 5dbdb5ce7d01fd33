// Package oauth implements the Zoho OAuth2 credential lifecycle: acquiring,
// persisting, validating, refreshing, and revoking the access credentials
// used for Zoho CRM API calls.
//
// # Architecture
//
// The package is built from four pieces, leaf to root:
//
//   - Store: durable JSON persistence of the single CredentialSet, with
//     atomic writes and tolerant loading (a missing or corrupt record
//     degrades to "unauthenticated", never a startup failure).
//   - BrowserFlow: the interactive authorization code flow. It starts a
//     one-shot local callback listener, opens the system browser, and blocks
//     until the redirect carries a code or an error, or the timeout elapses.
//   - Exchanger: converts an authorization code or refresh token into fresh
//     credentials via the provider's token endpoint, and revokes refresh
//     tokens.
//   - Supervisor: the façade callers use. It guarantees a currently valid
//     access token, orchestrating validation, refresh, and interactive
//     escalation, and exposes the request headers and cached api_domain the
//     CRM client needs.
//
// # Usage
//
//	store := oauth.NewStore(oauth.StoreConfig{Path: cfg.TokenFile})
//	store.Load() // tolerant of absence and corruption
//
//	exchanger := oauth.NewExchanger(oauth.ExchangerConfig{...})
//	flow := oauth.NewBrowserFlow(oauth.BrowserFlowConfig{...})
//	sup := oauth.NewSupervisor(store, exchanger, flow)
//
//	headers, err := sup.Headers(ctx) // refreshes or re-authorizes as needed
//
// SECURITY: token values are never logged; log records carry only expiry
// timestamps and presence flags. The credential file is written 0600 inside
// a 0700 directory.
package oauth
