package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecideGuestMutationsStayLocal(t *testing.T) {
	kinds := []Kind{KindProject, KindConversation, KindMessage, KindSettings}
	ops := []Op{OpCreate, OpUpdate, OpDelete}

	for _, kind := range kinds {
		for _, op := range ops {
			d := Decide(kind, op, ModeGuest)
			require.Equal(t, LocalOnly, d.Action, "kind=%d op=%d", kind, op)
			require.False(t, d.AttachUserID)
		}
	}

	d := Decide(KindFile, OpAttach, ModeGuest)
	require.Equal(t, LocalOnly, d.Action)
}

func TestDecideAuthenticatedMirrors(t *testing.T) {
	for _, kind := range []Kind{KindProject, KindConversation, KindSettings} {
		for _, op := range []Op{OpCreate, OpUpdate, OpDelete} {
			d := Decide(kind, op, ModeAuthenticated)
			require.Equal(t, RemoteMirror, d.Action, "kind=%d op=%d", kind, op)
			require.True(t, d.AttachUserID)
		}
	}
}

func TestDecideMessageCreateReconcilesID(t *testing.T) {
	d := Decide(KindMessage, OpCreate, ModeAuthenticated)
	require.Equal(t, RemoteThenReconcileID, d.Action)

	d = Decide(KindMessage, OpDelete, ModeAuthenticated)
	require.Equal(t, RemoteMirror, d.Action)
}

func TestDecideFileAttachRequiresEmbedding(t *testing.T) {
	d := Decide(KindFile, OpAttach, ModeAuthenticated)
	require.Equal(t, RemoteIfEmbedded, d.Action)
}

func TestDecideEmbedAllowedForGuests(t *testing.T) {
	guest := Decide(KindFile, OpEmbed, ModeGuest)
	require.Equal(t, RemoteMirror, guest.Action)
	require.False(t, guest.AttachUserID)

	member := Decide(KindFile, OpEmbed, ModeAuthenticated)
	require.Equal(t, RemoteMirror, member.Action)
	require.True(t, member.AttachUserID)
}
