// Package models defines the core domain models for chorebank.
//
// # Model Overview
//
//   - Group: a household-like group with a recurring sprint rule and a
//     per-member load-share map (Weights)
//   - User: a chat account, member of at most one group at a time
//   - Task: a recurring chore owned by a group, priced in units
//   - Log: one completion attempt of a task, pending until a peer confirms
//   - Balance: the signed unit accumulator for one (user, group) pair
//
// # Design Principles
//
// 1. **Units are decimals**: every unit amount (task cost, balances) is a
// shopspring decimal so settlement rounding stays exact to two places.
//
// 2. **Sprints are rules, not rows**: a group stores only (StartDay,
// SprintDuration); concrete window boundaries are recomputed from "now"
// whenever they are needed.
//
// 3. **History is immutable**: tasks are soft-deleted and completed logs are
// never removed, so any past window can be re-aggregated on demand.
//
// 4. **Avoid circular references**: models reference each other by ID.
package models
