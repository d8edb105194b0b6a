/*
Package notary implements a notary: the service that guarantees that no
state is consumed twice and that no linear id is issued twice.

The uniqueness index is an iavl tree. Every notarized transaction claims
its inputs and the linear ids of its outputs in a single commit, and the
attestation returned to the caller is a signature over the transaction id
and the tree version and root hash of that commit.
*/
package notary
