package core

// DeriveStatus computes the lifecycle status of an income record from its
// category. The status is never set directly by a caller; both the creation
// and the update path run through this single rule so the two can never
// diverge.
//
// current is the record's status before the operation; pass the zero value
// at creation time.
//
// The rules:
//   - congregation funds stay local, so they are completed immediately and
//     a category edit to congregation completes the record even after it
//     was remitted.
//   - a record already remitted stays remitted; editing its amount or
//     description must not regress a settled remittance back to pending.
//   - everything destined for the branch (worldwide_work, renovation) is
//     pending until a remittance batch settles it.
//
// The remitted status itself is produced only by the remittance processor,
// never here.
func DeriveStatus(category IncomeCategory, current TransactionStatus) TransactionStatus {
	if category == CategoryCongregation {
		return StatusCompleted
	}
	if current == StatusRemitted {
		return StatusRemitted
	}
	return StatusPendingRemittance
}
