package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// TokenCipher OAuth 凭证落库加密器 (AES-256-GCM)
// Encrypt/Decrypt 均为纯函数，失败只返回 error，绝不 panic
type TokenCipher struct {
	key [32]byte
}

// NewTokenCipher 创建加密器
// secret 为任意长度的密钥素材，内部做 SHA-256 派生，保证 32 字节
func NewTokenCipher(secret string) (*TokenCipher, error) {
	if secret == "" {
		return nil, errors.New("加密密钥不能为空")
	}
	return &TokenCipher{key: sha256.Sum256([]byte(secret))}, nil
}

// Encrypt 加密明文，输出 base64(nonce + ciphertext)
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// 随机 nonce 前置存储
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密 Encrypt 的输出
// 密文损坏/密钥不符时返回 error（上层按软失败处理，走缓存降级）
func (c *TokenCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("密文 base64 解码失败: %v", err)
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", errors.New("密文长度不足")
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("密文解密失败: %v", err)
	}
	return string(plain), nil
}
