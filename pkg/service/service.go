package service

// Logger defines the logging interface the services depend on, satisfied
// by *logrus.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
