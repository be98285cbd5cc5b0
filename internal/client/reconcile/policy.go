// Package reconcile decides, per mutation, whether the change goes to the
// server or stays in local memory, and how local identifiers are squared
// with server-issued ones. The whole policy is one pure lookup so call
// sites never branch on session mode themselves.
package reconcile

// Kind identifies the entity a mutation targets.
type Kind int

const (
	KindProject Kind = iota
	KindConversation
	KindMessage
	KindFile
	KindSettings
)

// Op identifies the mutation. OpEmbed is the file-to-AI-service ingestion,
// distinct from OpAttach which records already-embedded file metadata.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
	OpAttach
	OpEmbed
)

// Mode is the session state the policy keys on.
type Mode int

const (
	ModeGuest Mode = iota
	ModeAuthenticated
)

// Action is what the caller must do with the mutation.
type Action int

const (
	// LocalOnly mutates in-memory state and issues no network call.
	LocalOnly Action = iota
	// RemoteMirror issues the remote call and mirrors the result locally.
	// A remote failure does not roll the local mirror back.
	RemoteMirror
	// RemoteThenReconcileID persists remotely and rewrites the local id to
	// the server-issued one in place.
	RemoteThenReconcileID
	// RemoteIfEmbedded records remote metadata only when the file already
	// has an embedding reference.
	RemoteIfEmbedded
)

// Decision pairs the action with whether the user identity rides along on
// the outbound call.
type Decision struct {
	Action       Action
	AttachUserID bool
}

// Decide is the policy table. Unknown combinations degrade to LocalOnly,
// the safe default.
func Decide(kind Kind, op Op, mode Mode) Decision {
	authenticated := mode == ModeAuthenticated

	// Embedding is the one mutation allowed in guest mode that still goes
	// over the wire; only the identity attachment differs.
	if kind == KindFile && op == OpEmbed {
		return Decision{Action: RemoteMirror, AttachUserID: authenticated}
	}

	if !authenticated {
		return Decision{Action: LocalOnly}
	}

	switch kind {
	case KindProject, KindConversation, KindSettings:
		return Decision{Action: RemoteMirror, AttachUserID: true}
	case KindMessage:
		if op == OpCreate {
			return Decision{Action: RemoteThenReconcileID, AttachUserID: true}
		}
		return Decision{Action: RemoteMirror, AttachUserID: true}
	case KindFile:
		if op == OpAttach {
			return Decision{Action: RemoteIfEmbedded, AttachUserID: true}
		}
		return Decision{Action: RemoteMirror, AttachUserID: true}
	}
	return Decision{Action: LocalOnly}
}
