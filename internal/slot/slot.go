// Package slot provides durable string key/value locations for carts.
package slot

import "errors"

var ErrBadKey = errors.New("slot: empty key")

func checkKey(key string) error {
	if key == "" {
		return ErrBadKey
	}
	return nil
}
