/*
Package vault implements a shared wallet controlled by a fixed set of
owners. A wallet may only act once a quorum of owners approved a proposed
action, optionally after a mandatory delay.

A wallet lives at a derived, keyless address. Owners submit proposals that
carry the sub-instructions to run; submitting counts as the proposer's own
approval. Other owners approve (or take back their approval) until the
configured threshold is met. Once the threshold is met and the time-lock has
passed, anyone may trigger execution: the engine asserts the wallet's
derived condition and replays the sub-instructions through the router,
all-or-nothing.

The wallet governs itself. Its owner set, threshold and minimum delay can
only change through a proposal executed by this same engine, targeting the
vault/update path. Every owner set change bumps the wallet's owner set
sequence, which permanently invalidates all proposals created under the
previous owner set.
*/
package vault
