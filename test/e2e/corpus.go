// Package e2e provides end-to-end tests covering the full ingestion and
// question answering pipeline against a generated document corpus.
package e2e

import (
	"fmt"
	"strings"
)

// CorpusDocument is one document in the E2E corpus. Filename carries the
// extension that decides the on-disk format the document is written as.
type CorpusDocument struct {
	Filename string
	Content  string
}

// Corpus holds generated documents for E2E tests.
type Corpus struct {
	Documents []CorpusDocument
	TotalDocs int
}

// topics are content templates the corpus cycles through. Each includes a
// distinctive phrase so test assertions can tell documents apart.
var topics = []struct {
	stem    string
	content string
}{
	{"python-guide", "Python is a high-level programming language used for web development and data science."},
	{"kubernetes-docs", "Kubernetes is an open-source container orchestration platform that automates deployment and scaling."},
	{"go-language", "Go is a statically typed language where concurrency is achieved with goroutines and channels."},
	{"postgresql-manual", "PostgreSQL is an advanced relational database that supports JSON and full-text search."},
	{"docker-handbook", "Docker enables building and shipping applications as portable container images."},
	{"machine-learning", "Machine learning algorithms learn patterns from data without being explicitly programmed."},
	{"rest-api-design", "REST is an architectural style where endpoints use HTTP methods and status codes."},
	{"redis-cache", "Redis is an in-memory data store commonly used for sessions and caching."},
	{"terraform-iac", "Terraform manages cloud infrastructure declaratively as code."},
	{"grpc-overview", "gRPC is a high-performance RPC framework built on HTTP/2 and protocol buffers."},
	{"oauth-authorization", "OAuth 2.0 is an authorization framework enabling secure delegated access."},
	{"git-workflow", "Git is a distributed version control system that tracks changes in source code."},
	{"kafka-streams", "Apache Kafka is a distributed event streaming platform built for high throughput."},
	{"nginx-config", "Nginx is a web server and reverse proxy that balances load and serves static files."},
	{"microservices", "Microservices split an application into small independently deployable services."},
	{"unit-testing", "Unit tests verify small units of code in isolation using mocks for dependencies."},
	{"tls-certificates", "HTTPS encrypts web traffic and TLS certificates verify server identity."},
	{"event-sourcing", "Event sourcing stores application state as an append-only sequence of events."},
	{"load-balancing", "Load balancers distribute traffic across servers to prevent single points of failure."},
	{"database-indexing", "Database indexes speed up queries and are critical for large tables."},
}

// BuildCorpus generates n documents by cycling topics and rotating through
// the supported file extensions. The unique reference tag leads the content
// so documents sharing a topic never share a chunk prefix.
func BuildCorpus(n int) *Corpus {
	docs := make([]CorpusDocument, 0, n)
	for i := 0; i < n; i++ {
		topic := topics[i%len(topics)]
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		name := fmt.Sprintf("%s-%04d%s", topic.stem, i, ext)
		content := fmt.Sprintf("Reference tag %s-%04d. %s", strings.ToUpper(topic.stem), i, topic.content)
		docs = append(docs, CorpusDocument{Filename: name, Content: content})
	}
	return &Corpus{Documents: docs, TotalDocs: len(docs)}
}
