// Package metrics exposes prometheus instrumentation for the protocol core.
// It is a pure observability concern: spec.md's non-goals exclude
// concurrency and server-assisted behavior, not instrumentation of the
// ratchets that already exist.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesEncryptedTotal counts pairwise SignalMessage/PreKeySignalMessage
	// encryptions, labeled by whether the send included a pre-key bundle.
	MessagesEncryptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "e2ee_messages_encrypted_total",
			Help: "Total number of pairwise messages encrypted",
		},
		[]string{"kind"}, // "signal", "prekey_signal"
	)

	MessagesDecryptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "e2ee_messages_decrypted_total",
			Help: "Total number of pairwise messages decrypted",
		},
		[]string{"kind", "result"}, // result: "ok", "duplicate", "invalid"
	)

	DHRatchetStepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "e2ee_dh_ratchet_steps_total",
			Help: "Total number of DH ratchet steps performed on decrypt",
		},
	)

	SkippedMessageKeys = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "e2ee_skipped_message_keys_total",
			Help: "Skipped-message-key cache events",
		},
		[]string{"event"}, // "cached", "hit"
	)

	DuplicateMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "e2ee_duplicate_messages_total",
			Help: "Total number of messages rejected as duplicates",
		},
	)

	GroupMessagesEncryptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "e2ee_group_messages_encrypted_total",
			Help: "Total number of sender-key group messages encrypted",
		},
	)

	GroupMessagesDecryptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "e2ee_group_messages_decrypted_total",
			Help: "Total number of sender-key group messages decrypted",
		},
		[]string{"result"}, // "ok", "duplicate", "invalid"
	)

	SessionBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "e2ee_session_builds_total",
			Help: "Total number of session initializations",
		},
		[]string{"role"}, // "alice", "bob"
	)
)
