package utils

import (
	"bytes"
	"regexp"
	"testing"
	"time"
)

var merchantUIDPattern = regexp.MustCompile(`^ORD-\d{14}-[0-9A-F]{8}$`)

func TestNewMerchantUIDDeterministic(t *testing.T) {
	rnd := bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	uid, err := NewMerchantUID(rnd, at)
	if err != nil {
		t.Fatalf("NewMerchantUID: %v", err)
	}
	if uid != "ORD-20250314092653-DEADBEEF" {
		t.Fatalf("uid inattendu: %q", uid)
	}
}

func TestNewMerchantUIDFormat(t *testing.T) {
	uid, err := NewMerchantUID(nil, time.Now())
	if err != nil {
		t.Fatalf("NewMerchantUID: %v", err)
	}
	if !merchantUIDPattern.MatchString(uid) {
		t.Fatalf("format inattendu: %q", uid)
	}
}

func TestNewMerchantUIDNormalizesToUTC(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	at := time.Date(2025, 3, 14, 18, 26, 53, 0, seoul)

	uid, err := NewMerchantUID(bytes.NewReader([]byte{0, 0, 0, 1}), at)
	if err != nil {
		t.Fatalf("NewMerchantUID: %v", err)
	}
	// 18h26 KST == 09h26 UTC
	if uid != "ORD-20250314092653-00000001" {
		t.Fatalf("la date doit être normalisée en UTC: %q", uid)
	}
}

func TestNewMerchantUIDExhaustedReader(t *testing.T) {
	if _, err := NewMerchantUID(bytes.NewReader(nil), time.Now()); err == nil {
		t.Fatal("une source d'aléa épuisée doit remonter une erreur")
	}
}
