/*
Package crypto holds the ed25519 key material used to sign and countersign
transaction proposals.

Keys are either generated at random or derived deterministically from a
seed along a SLIP-10 path (see DeriveKey), which is how long lived node
identities are restored.
*/
package crypto
