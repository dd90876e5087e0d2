package types_test

import (
	"testing"

	"github.com/recapd/relay/pkg/domain/types"
)

func TestPlatform_Validate(t *testing.T) {
	tests := []struct {
		name     string
		platform types.Platform
		wantErr  bool
	}{
		{"google meet", types.PlatformGoogleMeet, false},
		{"zoom", types.PlatformZoom, false},
		{"custom platform", "teams_live", false},
		{"single word", "webex", false},
		{"empty", "", true},
		{"uppercase", "Zoom", true},
		{"spaces", "google meet", true},
		{"hyphen", "google-meet", true},
		{"leading underscore", "_zoom", true},
		{"trailing underscore", "zoom_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.platform.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Platform.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMeetingStatus(t *testing.T) {
	for _, s := range types.AllMeetingStatuses() {
		if !s.IsValid() {
			t.Errorf("status %q should be valid", s)
		}
	}

	if types.MeetingStatus("stopped").IsValid() {
		t.Error("unknown status should be invalid")
	}

	if _, err := types.ParseMeetingStatus("archived"); err != nil {
		t.Errorf("ParseMeetingStatus(archived) error = %v", err)
	}
	if _, err := types.ParseMeetingStatus("finished"); err == nil {
		t.Error("ParseMeetingStatus(finished) should fail")
	}
}

func TestIDValidate(t *testing.T) {
	if err := types.UserID(1).Validate(); err != nil {
		t.Errorf("UserID(1).Validate() error = %v", err)
	}
	if err := types.UserID(0).Validate(); err == nil {
		t.Error("UserID(0).Validate() should fail")
	}
	if err := types.MeetingID(-5).Validate(); err == nil {
		t.Error("MeetingID(-5).Validate() should fail")
	}
	if got := types.MeetingID(42).String(); got != "42" {
		t.Errorf("MeetingID(42).String() = %q", got)
	}
}
