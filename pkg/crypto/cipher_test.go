package crypto

import (
	"testing"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher("test-secret-key")
	if err != nil {
		t.Fatalf("创建加密器失败: %v", err)
	}

	plaintext := "ya29.a0AfH6SMBx-access-token-sample"
	enc, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	if enc == plaintext {
		t.Fatal("密文不应等于明文")
	}

	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("解密失败: %v", err)
	}
	if dec != plaintext {
		t.Errorf("解密结果 = %q, want %q", dec, plaintext)
	}
}

func TestTokenCipher_NonceUnique(t *testing.T) {
	c, _ := NewTokenCipher("test-secret-key")

	// 同一明文两次加密应产生不同密文（随机 nonce）
	a, _ := c.Encrypt("same-token")
	b, _ := c.Encrypt("same-token")
	if a == b {
		t.Error("两次加密结果相同，nonce 未随机化")
	}
}

func TestTokenCipher_TamperedCiphertext(t *testing.T) {
	c, _ := NewTokenCipher("test-secret-key")

	enc, _ := c.Encrypt("secret-refresh-token")

	// 翻转中间一个字符，保证与原文不同
	mid := len(enc) / 2
	repl := "B"
	if enc[mid:mid+1] == "B" {
		repl = "C"
	}
	tampered := enc[:mid] + repl + enc[mid+1:]

	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("篡改后的密文应解密失败")
	}
}

func TestTokenCipher_WrongKey(t *testing.T) {
	c1, _ := NewTokenCipher("key-one")
	c2, _ := NewTokenCipher("key-two")

	enc, _ := c1.Encrypt("token")
	if _, err := c2.Decrypt(enc); err == nil {
		t.Error("错误密钥应解密失败")
	}
}

func TestTokenCipher_InvalidInput(t *testing.T) {
	c, _ := NewTokenCipher("test-secret-key")

	cases := []string{"", "not-base64!!!", "c2hvcnQ="}
	for _, in := range cases {
		if _, err := c.Decrypt(in); err == nil {
			t.Errorf("输入 %q 应返回错误", in)
		}
	}
}

func TestNewTokenCipher_EmptySecret(t *testing.T) {
	if _, err := NewTokenCipher(""); err == nil {
		t.Error("空密钥应返回错误")
	}
}
