package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"
)

func hmacSum(key []byte, input string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(input))
	return mac.Sum(nil)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
