/*
Package flow implements the multi party protocol that issues an
obligation.

The proposer (IssueFlow) builds and signs the transaction, collects the
signatures of every other participant, has the transaction notarized and
finally broadcasts it. Each counterparty runs a Responder that checks the
proposal independently before signing and records the transaction only
once it receives the notarized, fully signed result.

Parties talk through Sessions. A session that is closed before the final
message arrives means the proposal was abandoned.
*/
package flow
