/*
Package iou defines the kernel types shared by every part of the issuance
protocol: parties and their addresses, ledger states, commands, transactions
and their signatures, notary attestations, and the contract registry that
decides whether a transaction is a valid state transition.

A transaction moves through the protocol as a SignedTransaction. Every party
computes the same transaction ID from the amino encoding of the unsigned
Transaction and signs bytes derived from that ID and the chain ID, so a
signature can never be replayed on another network.

We pass context through context.Context between flows, sessions and
services. To do so, this package defines helpers to store the logger under a
private key:

  WithLogger(Context, log.Logger) Context
  GetLogger(Context) log.Logger
*/
package iou
