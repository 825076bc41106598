package archive

import (
	"archive/zip"
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write(content); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write zip: %v", err)
	}
}

// encryptBundle produces the salt|nonce|tag|ciphertext layout Decrypt expects.
func encryptBundle(t *testing.T, plain []byte, password string) []byte {
	t.Helper()
	salt := make([]byte, saltLen)
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("rand: %v", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("rand: %v", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Rounds, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceLen)
	if err != nil {
		t.Fatalf("gcm: %v", err)
	}

	sealed := gcm.Seal(nil, nonce, plain, nil) // ciphertext || tag
	ciphertext := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	out := append([]byte{}, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	return append(out, ciphertext...)
}

func TestLoad_ZipWithMediaSkipped(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "export.zip"), map[string][]byte{
		"_chat.txt":   []byte("[01/01/24, 10:00] Alice: Hello"),
		"IMG-001.jpg": {0xff, 0xd8},
		"VID-002.mp4": {0x00},
	})

	exports, failures, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}
	if len(exports) != 1 {
		t.Fatalf("len(exports) = %d, want 1", len(exports))
	}
	if exports[0].SourceFile != "export.zip/_chat.txt" {
		t.Errorf("SourceFile = %q", exports[0].SourceFile)
	}
	if !bytes.Contains(exports[0].Content, []byte("Alice")) {
		t.Error("export content missing")
	}
}

func TestLoad_PlainTextAndHTML(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("[01/01/24, 10:00] A: hi"), 0644)
	os.WriteFile(filepath.Join(dir, "b.html"), []byte("<html></html>"), 0644)

	exports, _, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(exports) != 2 {
		t.Fatalf("len(exports) = %d, want 2", len(exports))
	}
	for _, e := range exports {
		if e.SourceFile == "b.html" && !e.HTML {
			t.Error("b.html not flagged HTML")
		}
	}
}

func TestLoad_CorruptZipReported(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("not a zip"), 0644)
	os.WriteFile(filepath.Join(dir, "ok.txt"), []byte("[01/01/24, 10:00] A: hi"), 0644)

	exports, failures, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(exports) != 1 {
		t.Errorf("len(exports) = %d, want 1 (batch continues past the corrupt archive)", len(exports))
	}
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	if failures[0].Archive != "broken.zip" {
		t.Errorf("failure archive = %q", failures[0].Archive)
	}
}

func TestLoad_MediaOnlyZipFails(t *testing.T) {
	dir := t.TempDir()
	writeZip(t, filepath.Join(dir, "media.zip"), map[string][]byte{
		"IMG-001.jpg": {0xff},
	})

	_, failures, err := Load(dir, "")
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("err = %v, want *ExtractionError (no exports at all)", err)
	}
}

func TestLoad_EmptyDirFails(t *testing.T) {
	_, _, err := Load(t.TempDir(), "")
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("err = %v, want *ExtractionError", err)
	}
}

func TestLoad_EncryptedBundle(t *testing.T) {
	dir := t.TempDir()
	plain := []byte("[01/01/24, 10:00] Alice: secret hello")
	os.WriteFile(filepath.Join(dir, "chat.txt.enc"), encryptBundle(t, plain, "hunter2"), 0644)

	exports, failures, err := Load(dir, "hunter2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v", failures)
	}
	if len(exports) != 1 {
		t.Fatalf("len(exports) = %d, want 1", len(exports))
	}
	if !bytes.Equal(exports[0].Content, plain) {
		t.Error("decrypted content mismatch")
	}
	if exports[0].SourceFile != "chat.txt" {
		t.Errorf("SourceFile = %q, want chat.txt", exports[0].SourceFile)
	}
}

func TestLoad_EncryptedBundleWrongKey(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "chat.txt.enc"),
		encryptBundle(t, []byte("secret"), "right"), 0644)

	_, failures, err := Load(dir, "wrong")
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	if err == nil {
		t.Fatal("expected error when no export survives")
	}
}

func TestLoad_EncryptedBundleNoKey(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "chat.txt.enc"),
		encryptBundle(t, []byte("secret"), "pw"), 0644)

	_, failures, _ := Load(dir, "")
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
}

func TestDecrypt_TooSmall(t *testing.T) {
	if _, err := Decrypt([]byte("tiny"), "pw"); err == nil {
		t.Fatal("expected error for undersized bundle")
	}
}
