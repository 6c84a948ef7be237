// Package models defines the core domain records for SmartSplit.
//
// # Identity
//
// Users are identified by their verified email address and groups by their
// unique name. All cross-record references (group members, expense payer and
// assignees) are identity strings resolved by lookup, never embedded objects,
// so renaming a user's display name does not rewrite historical expenses.
//
// # Records
//
//   - User: created on first login or first add-to-group; never hard-deleted,
//     only removed from groups.
//   - Group: owns its expenses by containment; every member listed must exist
//     as a User.
//   - Item: transient output of the receipt parser, consumed by assignment.
//   - Expense: immutable once persisted; carries the equal-split share.
//
// Constructors validate shape at the boundary so malformed records are
// rejected before they reach computation.
package models
