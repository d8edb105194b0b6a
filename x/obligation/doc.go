/*
Package obligation implements the IOU: a record that one party, the
borrower, owes another party, the lender, an amount of money.

An ObligationRecord is created by an Issue transaction that consumes no
inputs, produces exactly one record with nothing paid yet, and is signed by
both the lender and the borrower. Later versions of the same obligation
(partial repayment, a new lender) are new records sharing the LinearID; Pay
and WithNewLender construct them.
*/
package obligation
