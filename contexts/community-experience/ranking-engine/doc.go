// Package rankingengine scores reviewed vulnerability reports and maintains
// hunter rankings.
//
// A scoring event awards a severity-based point value scaled by the hunter's
// activity streak, moves the hunter through the E..S tier table and unlocks
// catalog achievements whose bonus points are recorded in the ledger only.
// Points are spent on catalog rewards subject to cost, tier and stock checks.
// The leaderboard orders hunters by a composite score of points, recency,
// consistency and report quality; tier always follows raw total points.
package rankingengine
