package middleware

import "context"

type contextKey string

const (
	ctxCustomerID    contextKey = "customer_id"
	ctxCustomerEmail contextKey = "customer_email"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}

func CustomerIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxCustomerID)
}

func CustomerEmailFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxCustomerEmail)
}

// WithCustomerID injects the customer identifier into the context.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerID, customerID)
}

// WithCustomerEmail injects the customer email into the context.
func WithCustomerEmail(ctx context.Context, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCustomerEmail, email)
}
