// Package models defines the core domain models for the shared-group ledger.
//
// # Models
//
//   - Group: a set of people sharing expenses. Soft-deleted via Active=false so
//     historical expenses stay readable.
//   - GroupMember: one participant of one group, optionally linked to a User.
//     Members without an account are plain contacts (name plus email/phone).
//   - GroupExpense: money fronted by one member on behalf of the group.
//   - Split: one member's share of one expense.
//   - User: a registered account, owned by the auth layer.
//
// # Conventions
//
//  1. Money is decimal.Decimal, never float64.
//  2. IDs are UUID strings; relationships use IDs instead of pointers.
//  3. Timestamps are Unix seconds; zero means "not set".
//  4. Balances are signed: positive means the group owes the member, negative
//     means the member owes the group.
package models
