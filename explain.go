package expo

import "fmt"

var explanations = map[ErrorMsg]string{
	ErrorMsgDeviceNotRegistered: "The device cannot receive push notifications anymore and you " +
		"should stop sending messages to the corresponding Expo push token.",
	ErrorMsgInvalidCredentials: "Your push notification credentials for your standalone app are " +
		"invalid (ex: you may have revoked them). Regenerate the push notification " +
		"credentials for the affected platform. If you revoke an APN key, all apps " +
		"that rely on that key will no longer be able to send or receive push " +
		"notifications until you upload a new key to replace it. Uploading a new APN " +
		"key will not change your users' Expo push tokens.",
	ErrorMsgTooBig: "The total notification payload was too large. On Android and iOS " +
		"the total payload must be at most 4096 bytes.",
	ErrorMsgRateExceeded: "You are sending messages too frequently to the given device. " +
		"Implement exponential backoff and slowly retry sending messages.",
}

const noIdentifierExplanation = "There is no identifier given to explain"

// Explain returns a human readable explanation for a service error identifier
// such as "DeviceNotRegistered". Unknown identifiers get a generic message.
func Explain(identifier string) string {
	if identifier == "" {
		return noIdentifierExplanation
	}
	if text, ok := explanations[ErrorMsg(identifier)]; ok {
		return text
	}
	return fmt.Sprintf("There is no embedded explanation for %s. Sorry!", identifier)
}

// ExplainDetails explains the "error" member of a ticket or receipt details
// object. Missing or non-string identifiers cannot be explained.
func ExplainDetails(details Data) string {
	identifier, ok := details["error"].(string)
	if !ok {
		return noIdentifierExplanation
	}
	return Explain(identifier)
}
