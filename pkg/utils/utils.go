// Package utils 提供 hash 等通用工具
package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hash 计算 SHA256 哈希
func SHA256Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// SHA256HashWithSalt 计算加盐 SHA256 哈希
func SHA256HashWithSalt(data, salt string) string {
	return SHA256Hash(salt + ":" + data)
}
