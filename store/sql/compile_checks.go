package sqlstore

import "github.com/goliatone/go-authflow/core"

var (
	_ core.TokenStore             = (*TokenStore)(nil)
	_ core.ConsumerStore          = (*ConsumerStore)(nil)
	_ core.ConsumerStore          = (*CachedConsumerStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
