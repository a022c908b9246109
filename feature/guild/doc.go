// Package guild stores guilds, characters, memberships and ranks, and serves
// the on-demand main/alt classification of a guild.
//
// Every Repository method wraps its failures in a DatabaseError. Membership
// writes for one guild go through WithMemberTx so a sync never leaves a
// partially applied roster behind.
package guild
