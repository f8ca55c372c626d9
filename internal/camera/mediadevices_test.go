package camera

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestV4L2MediaDevices_EnumerateDevices(t *testing.T) {
	ctx := context.Background()
	discovery := NewMockDiscovery([]string{"/dev/video0", "/dev/video2"}, "Integrated Camera", "")
	devices := NewV4L2MediaDevices(discovery, Options{})

	got, err := devices.EnumerateDevices(ctx)
	if err != nil {
		t.Fatalf("EnumerateDevices failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(got))
	}

	if got[0].Label != "Integrated Camera" || got[0].Facing != FacingUser {
		t.Errorf("Unexpected first device: %+v", got[0])
	}
	// 名前が取得できないデバイスはラベルなし
	if got[1].Label != "" {
		t.Errorf("Expected empty label, got %q", got[1].Label)
	}
	for _, d := range got {
		if d.Kind != KindVideoInput {
			t.Errorf("Expected videoinput, got %s", d.Kind)
		}
		if d.ID != DeviceIDForPath(d.Path) {
			t.Errorf("Unexpected device ID for %s", d.Path)
		}
	}
}

func TestV4L2MediaDevices_EnumerateError(t *testing.T) {
	discovery := NewMockDiscovery(nil)
	discovery.SetScanError(errors.New("boom"))
	devices := NewV4L2MediaDevices(discovery, Options{})

	if _, err := devices.EnumerateDevices(context.Background()); err == nil {
		t.Fatal("Expected enumerate error")
	}
}

func TestV4L2MediaDevices_GetUserMediaNoDevice(t *testing.T) {
	devices := NewV4L2MediaDevices(NewMockDiscovery(nil), Options{OpenTimeout: time.Second})

	_, err := devices.GetUserMedia(context.Background(), Constraints{FacingMode: FacingEnvironment})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestSelectDevice(t *testing.T) {
	front := Device{ID: "a", Label: "Front", Kind: KindVideoInput, Facing: FacingUser}
	rear := Device{ID: "b", Label: "Rear", Kind: KindVideoInput, Facing: FacingEnvironment}
	mic := Device{ID: "m", Label: "Mic", Kind: KindAudioInput}

	testCases := []struct {
		name        string
		devices     []Device
		constraints Constraints
		wantID      string
		wantErr     error
	}{
		{"完全一致", []Device{front, rear}, Constraints{DeviceID: "a"}, "a", nil},
		{"存在しないID", []Device{front, rear}, Constraints{DeviceID: "zzz"}, "", ErrOverconstrained},
		{"ID指定時は向きを無視", []Device{front, rear}, Constraints{DeviceID: "a", FacingMode: FacingEnvironment}, "a", nil},
		{"外側カメラを優先", []Device{front, rear}, Constraints{FacingMode: FacingEnvironment}, "b", nil},
		{"該当なしは先頭", []Device{front}, Constraints{FacingMode: FacingEnvironment}, "a", nil},
		{"映像入力のみ対象", []Device{mic, front}, Constraints{}, "a", nil},
		{"デバイスなし", []Device{mic}, Constraints{}, "", ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectDevice(tc.devices, tc.constraints)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.ID != tc.wantID {
				t.Errorf("Expected %s, got %s", tc.wantID, got.ID)
			}
		})
	}
}

func TestGuessFacing(t *testing.T) {
	testCases := map[string]FacingMode{
		"Rear Camera":        FacingEnvironment,
		"back camera":        FacingEnvironment,
		"FaceTime HD Camera": FacingUser,
		"Integrated_Webcam":  FacingUser,
		"HD Pro Webcam C920": FacingUnknown,
		"":                   FacingUnknown,
	}

	for label, want := range testCases {
		if got := GuessFacing(label); got != want {
			t.Errorf("GuessFacing(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestDeviceIDForPath(t *testing.T) {
	a := DeviceIDForPath("/dev/video0")
	if a != DeviceIDForPath("/dev/video0") {
		t.Error("Expected stable ID")
	}
	if a == DeviceIDForPath("/dev/video1") {
		t.Error("Expected distinct IDs")
	}
}
