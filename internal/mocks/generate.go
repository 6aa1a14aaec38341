package mocks

//go:generate mockery --name EventStore --srcpkg github.com/kinlog-lab/kinlog/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Locker --srcpkg github.com/kinlog-lab/kinlog/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Projection --srcpkg github.com/kinlog-lab/kinlog/internal/projection --output ./projection --outpkg projectionmocks --with-expecter
