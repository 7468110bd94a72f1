package crypto

import "testing"

func TestHeaders(t *testing.T) {
	auth := &HMACAuth{KeyID: "admind-prod", Secret: "s3cret"}

	h := auth.Headers("POST", "/internal/markets/approve", `{"id":"x"}`)
	for _, key := range []string{"X-Admind-Key", "X-Admind-Timestamp", "X-Admind-Signature"} {
		if h[key] == "" {
			t.Errorf("header %s missing", key)
		}
	}
	if h["X-Admind-Key"] != "admind-prod" {
		t.Errorf("key header = %q", h["X-Admind-Key"])
	}

	// Same inputs within the same second sign identically; a different body
	// must not.
	h2 := auth.Headers("POST", "/internal/markets/approve", `{"id":"y"}`)
	if h["X-Admind-Timestamp"] == h2["X-Admind-Timestamp"] && h["X-Admind-Signature"] == h2["X-Admind-Signature"] {
		t.Error("different bodies produced identical signatures")
	}
}

func TestEnabled(t *testing.T) {
	if (&HMACAuth{}).Enabled() {
		t.Error("empty auth reported enabled")
	}
	var nilAuth *HMACAuth
	if nilAuth.Enabled() {
		t.Error("nil auth reported enabled")
	}
	if !(&HMACAuth{KeyID: "k", Secret: "s"}).Enabled() {
		t.Error("configured auth reported disabled")
	}
}
