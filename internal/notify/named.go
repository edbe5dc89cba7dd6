package notify

import "github.com/ignatzorin/beatmarket-backend/internal/domain/repository"

type namedSink struct {
	repository.Notifier
	name string
}

func (s namedSink) Name() string { return s.name }

// Named даёт имя произвольному Notifier, например ws.NotifierAdapter.
func Named(name string, n repository.Notifier) Sink {
	return namedSink{Notifier: n, name: name}
}
