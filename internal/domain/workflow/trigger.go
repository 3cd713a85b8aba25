package workflow

// Trigger represents an action that can cause a status transition
type Trigger string

const (
	TriggerSubmit   Trigger = "SUBMIT"
	TriggerAssign   Trigger = "ASSIGN"
	TriggerAccept   Trigger = "ACCEPT"
	TriggerReject   Trigger = "REJECT"
	TriggerComplete Trigger = "COMPLETE"
	TriggerInvoice  Trigger = "INVOICE"
	TriggerApprove  Trigger = "APPROVE"
	TriggerPay      Trigger = "PAY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
