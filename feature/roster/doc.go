// Package roster turns a fetched guild roster into membership and rank changes
// and groups a guild's characters by the player behind them.
//
// ReconcileMembers and Classify are pure. ReconcileRanks writes through a
// RankStore one rank at a time.
package roster
