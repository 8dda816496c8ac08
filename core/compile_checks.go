package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ TokenStore    = (*MemoryTokenStore)(nil)
	_ ConsumerStore = (*MemoryConsumerStore)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
