package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/fraud"
)

const (
	ToolLoadFraudCase          = "load_fraud_case"
	ToolVerifyIdentifier       = "verify_identifier"
	ToolVerifySecurityAnswer   = "verify_security_answer"
	ToolMarkTransactionSafe    = "mark_transaction_safe"
	ToolMarkTransactionFraud   = "mark_transaction_fraudulent"
	ToolMarkVerificationFailed = "mark_verification_failed"
)

func fraudTools(g *Gateway, call *fraud.Call) []entry {
	return []entry{
		{
			info: &schema.ToolInfo{
				Name: ToolLoadFraudCase,
				Desc: "Look up the pending fraud alert for the caller by the name they give. Call this before any verification.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"user_name": {Type: schema.String, Desc: "Customer name as spoken", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				name, err := args.String("user_name")
				if err != nil {
					return "", err
				}
				c, err := call.LoadCase(name)
				if err != nil {
					return "", fraudError(err)
				}
				return fmt.Sprintf("Thank you, %s. I have an alert on your card ending in %s. Before I share details, please tell me your security identifier.",
					c.UserName, c.CardEnding), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolVerifyIdentifier,
				Desc: "Check the security identifier the caller reads out against the loaded case.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"identifier": {Type: schema.String, Desc: "Security identifier as spoken", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				id, err := args.String("identifier")
				if err != nil {
					return "", err
				}
				c, err := call.VerifyIdentifier(id)
				if err != nil {
					return "", fraudError(err)
				}
				return fmt.Sprintf("Thank you, that matches. One more check: %s", c.SecurityQuestion), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolVerifySecurityAnswer,
				Desc: "Check the caller's answer to the security question. Only after the identifier was verified.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"answer": {Type: schema.String, Desc: "Answer as spoken", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				answer, err := args.String("answer")
				if err != nil {
					return "", err
				}
				c, err := call.VerifyAnswer(answer)
				if err != nil {
					return "", fraudError(err)
				}
				return fmt.Sprintf("Thank you, you are verified. We saw a %s transaction of %s at %s, %s, on %s via %s. Did you make this transaction?",
					c.TransactionCategory, c.TransactionAmount, c.TransactionName, c.TransactionLocation, c.TransactionTime, c.TransactionSource), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolMarkTransactionSafe,
				Desc: "Close the case as legitimate after the verified caller confirms they made the transaction.",
			},
			terminal: true,
			run: func(ctx context.Context, _ Args) (string, error) {
				c, err := call.MarkSafe()
				if err != nil {
					return "", fraudError(err)
				}
				g.deliver(ctx, "fraud_case", c)
				return fmt.Sprintf("Thank you for confirming. I have marked the %s transaction at %s as safe, and your card ending in %s stays active. Have a good day!",
					c.TransactionAmount, c.TransactionName, c.CardEnding), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolMarkTransactionFraud,
				Desc: "Close the case as fraud after the verified caller denies the transaction. Blocks the card and raises a dispute.",
			},
			terminal: true,
			run: func(ctx context.Context, _ Args) (string, error) {
				c, err := call.MarkFraud()
				if err != nil {
					return "", fraudError(err)
				}
				g.deliver(ctx, "fraud_case", c)
				return fmt.Sprintf("Thank you for letting us know. Your card ending in %s is now blocked, a dispute has been raised for %s, and a replacement card will be sent to you.",
					c.CardEnding, c.TransactionAmount), nil
			},
		},
		{
			info: &schema.ToolInfo{
				Name: ToolMarkVerificationFailed,
				Desc: "Close the case as unverified when the caller cannot pass the identifier or security question.",
			},
			terminal: true,
			run: func(ctx context.Context, _ Args) (string, error) {
				c, err := call.MarkVerificationFailed()
				if errors.Is(err, contractx.ErrOutOfOrder) && call.State() == fraud.StateAnswerVerified {
					return "", say(err, "You are already verified. Please tell me whether you made this transaction.")
				}
				if err != nil {
					return "", fraudError(err)
				}
				g.deliver(ctx, "fraud_case", c)
				return "Since I could not verify your identity, I cannot make any changes on this call. Please visit your nearest branch or call the number on the back of your card.", nil
			},
		},
	}
}

func fraudError(err error) error {
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		return say(err, "I could not find any pending fraud alert under that name. Could you spell your full name for me?")
	case errors.Is(err, contractx.ErrNoCase):
		return say(err, "I have not loaded your alert yet. May I have your full name first?")
	case errors.Is(err, contractx.ErrCaseAlreadyLoaded):
		return say(err, "I am already handling an alert on this call, so let's finish that one first.")
	case errors.Is(err, contractx.ErrCaseStale):
		return say(err, "This alert was updated while we were talking. Let me look it up again, could you repeat your name?")
	case errors.Is(err, contractx.ErrCaseClosed):
		return say(err, "This alert has already been closed on this call.")
	case errors.Is(err, contractx.ErrVerificationFailed):
		return say(err, "I'm sorry, that does not match our records, so I cannot continue verification on this call.")
	case errors.Is(err, contractx.ErrOutOfOrder):
		return say(err, "We need to finish the security checks before that step.")
	case errors.Is(err, contractx.ErrPersist):
		return say(err, "I could not update the case just now. Please stay on the line while I try again.")
	default:
		return err
	}
}
