// Package security implements the credential verification pipeline that
// guards every operation registered from a specification document.
//
// Each security scheme declared for an operation becomes a Verifier with
// three-outcome voting: Granted (credential verified, token info produced),
// Rejected (credential present but invalid), or Abstain (the request carries
// no credential of this scheme's type). A Chain runs the verifiers in
// declaration order and stops at the first non-abstaining result; when all
// abstain the request is refused with a no-authorization failure.
//
// Verification functions are looked up by name in a Registry populated at
// startup, or built from a remote token-info URL via the shared
// Introspector. Both synchronous and channel-deferred implementations fit
// the same resolve-or-fail contract; Await is the only point where pending
// work is suspended on.
package security
