// Package retry runs operations again when they fail for transient reasons.
//
// An Executor combines an ErrorClassifier, which decides whether an error is
// worth another attempt, with a BackoffStrategy, which decides how long to
// wait. Two classifiers are provided: PostgreSQLErrorClassifier for database
// connections and HTTPErrorClassifier for catalog API requests.
//
//	executor := retry.NewExecutor(retry.NewHTTPErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetchPage(ctx, 0)
//	})
package retry
