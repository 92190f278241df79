package session

import (
	"fmt"
	"io"

	"github.com/jaydenbeard/e2ee-core/ecc"
	"github.com/jaydenbeard/e2ee-core/metrics"
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/ratchet"
)

// ratchetStep performs the DH-ratchet step triggered by a message whose
// sender ratchet key is new to this state (spec §4.5 step 2): the old
// sending chain's private half is combined with the new remote ratchet key
// into a fresh receiver chain, then a fresh local ratchet key pair is
// generated and combined with the same remote key into a fresh sender
// chain.
func ratchetStep(state *State, theirRatchetKey ecc.PublicKey, rng io.Reader) error {
	senderChainKey, err := state.SenderChainKey()
	if err != nil {
		return err
	}
	senderRatchetKeyPair, err := state.SenderRatchetKeyPair()
	if err != nil {
		return err
	}

	root := state.RootKey()
	newRoot, recvChain, err := root.CreateChain(theirRatchetKey, senderRatchetKeyPair.Private)
	if err != nil {
		return err
	}
	state.AddReceiverChain(theirRatchetKey, recvChain)

	newRatchetKeyPair, err := ecc.GenerateKeyPair(rng)
	if err != nil {
		return err
	}
	newerRoot, sendChain, err := newRoot.CreateChain(theirRatchetKey, newRatchetKeyPair.Private)
	if err != nil {
		return err
	}

	state.SetPreviousCounter(senderChainKey.Index)
	state.SetSenderChain(newRatchetKeyPair, sendChain)
	state.SetRootKey(newerRoot)
	metrics.DHRatchetStepsTotal.Inc()
	return nil
}

// advanceAndFetchMessageKeys locates the receiver chain keyed by
// senderRatchetKey (which must already exist — ratchetStep runs first when
// it doesn't) and returns the MessageKeys for counter, advancing the chain
// and caching any skipped intermediate keys along the way (spec §4.5 step
// 3).
func advanceAndFetchMessageKeys(state *State, senderRatchetKey ecc.PublicKey, counter uint32) (ratchet.MessageKeys, error) {
	chain, _, ok := state.GetReceiverChain(senderRatchetKey)
	if !ok {
		return ratchet.MessageKeys{}, protocolerr.ErrInvalidState
	}

	var key [32]byte
	var index uint32
	if chain.ChainKey != nil {
		copy(key[:], chain.ChainKey.Key)
		index = chain.ChainKey.Index
	}
	current := ratchet.NewChainKey(state.SessionVersion(), key, index)

	// The counter is for a message already consumed (and possibly skipped
	// over): it can only be satisfied from the skipped-key cache.
	if counter < current.Index {
		mk, ok := state.RemoveMessageKeys(senderRatchetKey, counter)
		if !ok {
			return ratchet.MessageKeys{}, protocolerr.NewDuplicatedMessage(current.Index, counter)
		}
		metrics.SkippedMessageKeys.WithLabelValues("hit").Inc()
		return mk, nil
	}

	if counter-current.Index > maxFutureMessages {
		return ratchet.MessageKeys{}, fmt.Errorf("%w: too far in future", protocolerr.ErrInvalidMessage)
	}

	for current.Index < counter {
		mk, err := current.MessageKeys()
		if err != nil {
			return ratchet.MessageKeys{}, err
		}
		state.SetMessageKeys(senderRatchetKey, mk)
		metrics.SkippedMessageKeys.WithLabelValues("cached").Inc()
		current = current.Advance()
	}

	mk, err := current.MessageKeys()
	if err != nil {
		return ratchet.MessageKeys{}, err
	}
	state.SetReceiverChainKey(senderRatchetKey, current.Advance())
	return mk, nil
}
