package models

import (
	"testing"
	"time"
)

func TestInvitationIsLive(t *testing.T) {
	live := map[InvitationStatus]bool{
		InvitationPending:  true,
		InvitationAccepted: true,
	}
	all := []InvitationStatus{
		InvitationPending, InvitationAccepted, InvitationDeclined,
		InvitationCompleted, InvitationWithdrawn,
	}
	for _, s := range all {
		if got := s.IsLive(); got != live[s] {
			t.Errorf("%s: IsLive = %v, want %v", s, got, live[s])
		}
	}
}

func TestDeadlineWindows(t *testing.T) {
	if ResponseWindow != 7*24*time.Hour {
		t.Errorf("response window is %v", ResponseWindow)
	}
	if WithdrawalWindow != 14*24*time.Hour {
		t.Errorf("withdrawal window is %v", WithdrawalWindow)
	}
	if ReviewWindow != 21*24*time.Hour {
		t.Errorf("review window is %v", ReviewWindow)
	}
}
