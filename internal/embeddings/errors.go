package embeddings

import "fmt"

// ServiceError reports a fault from the embedding service itself, for
// example a model that does not support embeddings. It carries enough
// detail (model name, endpoint, server response) for a user-facing
// notification.
type ServiceError struct {
	Model  string
	URL    string
	Detail string
}

func (e *ServiceError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("embedding model %q at %s: %s", e.Model, e.URL, e.Detail)
	}
	return fmt.Sprintf("embedding model %q: %s", e.Model, e.Detail)
}
