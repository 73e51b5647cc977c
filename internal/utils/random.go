package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// NewMerchantUID génère la référence locale unique d'une tentative de
// paiement. La source d'aléa est injectée pour rester déterministe en test ;
// passer nil utilise crypto/rand.
func NewMerchantUID(rnd io.Reader, now time.Time) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	b := make([]byte, 4)
	if _, err := io.ReadFull(rnd, b); err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%08X", now.UTC().Format("20060102150405"), binary.BigEndian.Uint32(b)), nil
}

// GenerateRandomState génère le paramètre state anti-CSRF du flux OAuth.
func GenerateRandomState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
