package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

const secretLen = 32

// 生成config.yaml中jwt.secret_key使用的随机密钥
func main() {
	key := make([]byte, secretLen)
	if _, err := rand.Read(key); err != nil {
		fmt.Fprintln(os.Stderr, "generate jwt secret:", err)
		os.Exit(1)
	}

	fmt.Printf("jwt:\n  secret_key: %s\n", base64.URLEncoding.EncodeToString(key))
}
