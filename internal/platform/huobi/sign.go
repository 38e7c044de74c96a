package huobi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"time"
)

// signParams adds the Huobi SignatureVersion 2 authentication parameters to
// params in place. The signature is HMAC-SHA256 over
// "METHOD\nhost\npath\nsorted-query", base64-encoded.
func (c *Client) signParams(method, path string, params url.Values) {
	params.Set("AccessKeyId", c.apiKey)
	params.Set("SignatureMethod", "HmacSHA256")
	params.Set("SignatureVersion", "2")
	params.Set("Timestamp", time.Now().UTC().Format("2006-01-02T15:04:05"))

	// url.Values.Encode sorts keys, which is exactly the canonical form the
	// signature requires.
	payload := method + "\n" + c.host + "\n" + path + "\n" + params.Encode()

	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(payload))
	params.Set("Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}
