// File: services/bridge/script.go
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"bunie/models"
)

// escapeSingleQuoted escapes a value for interpolation inside a
// single-quoted JavaScript string literal. This is the single audited
// escaping boundary; every script builder in this package goes through it
// or through JSON serialization, never ad hoc escaping.
func escapeSingleQuoted(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
	)
	return r.Replace(s)
}

// TokenInjectionScript builds the script that hands the push token to the
// storefront content after a page load: a global variable, a custom DOM
// event, and a best-effort localStorage write.
func TokenInjectionScript(token string) string {
	t := escapeSingleQuoted(token)
	return fmt.Sprintf(`(function() {
  window.ReactNativeFCMToken = '%[1]s';
  window.dispatchEvent(new CustomEvent('fcmTokenReceived', {
    detail: { token: '%[1]s' }
  }));
  if (window.localStorage) {
    window.localStorage.setItem('fcmToken', '%[1]s');
  }
})();
true;`, t)
}

// TokenResponseScript builds the reply to a requestFCMToken message. The
// payload is serialized as JSON and embedded as an object literal, so the
// token never passes through string escaping at all.
func TokenResponseScript(token string) string {
	payload, _ := json.Marshal(models.BridgeMessage{
		Type:  models.BridgeFCMToken,
		Token: token,
	})
	return fmt.Sprintf(`(function() {
  if (window.postMessage) {
    window.postMessage(JSON.stringify(%s), '*');
  }
})();
true;`, payload)
}

// MessageRelayScript forwards storefront postMessage traffic back to the
// host channel. Installed once per page load.
const MessageRelayScript = `window.addEventListener('message', function(event) {
  if (window.ReactNativeWebView) {
    window.ReactNativeWebView.postMessage(JSON.stringify(event.data));
  }
});
true;`
