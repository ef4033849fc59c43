package bolt

import (
	"context"

	pool "github.com/jolestar/go-commons-pool"

	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/log"
)

// DriverPool keeps up to a fixed number of connections to a bolt server
// and hands them out to callers. Individual connections are not thread
// safe, but the pool itself is. Connections released in a failed state
// are reset before they are offered out again, and connections that
// cannot be recovered are destroyed.
type DriverPool interface {
	// Get borrows a connection from the pool, opening a new one if the
	// pool still has capacity left
	Get() (Conn, error)
	// Release puts a connection back into the pool
	Release(Conn) error
	// Close empties the pool, closing every pooled connection
	Close() error
}

// connFactory makes, validates and destroys pooled bolt connections
type connFactory struct {
	connStr string
}

func (f *connFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	log.Infof("Opening new pooled connection")
	c, err := newBoltConn(f.connStr)
	if err != nil {
		return nil, err
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *connFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*boltConn)
	if !ok {
		return errors.New("Unrecognized object in pool: %#v", object.Object)
	}
	return c.Close()
}

func (f *connFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*boltConn)
	return ok && c.state == connReady
}

func (f *connFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

func (f *connFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

type boltPool struct {
	connStr string
	pool    *pool.ObjectPool
}

// NewDriverPool creates a pool of up to max connections to the server
// described by connStr. No connection is opened until the first Get.
func NewDriverPool(connStr string, max int) (DriverPool, error) {
	// Surface a bad connection string now rather than on first use
	if _, err := newBoltConn(connStr); err != nil {
		return nil, err
	}

	config := pool.NewDefaultPoolConfig()
	config.MaxTotal = max
	config.MaxIdle = max
	config.TestOnBorrow = true

	return &boltPool{
		connStr: connStr,
		pool:    pool.NewObjectPool(context.Background(), &connFactory{connStr: connStr}, config),
	}, nil
}

// Get borrows a connection from the pool, opening a new one if the pool
// still has capacity left
func (p *boltPool) Get() (Conn, error) {
	objInt, err := p.pool.BorrowObject(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "An error occurred borrowing a connection from the pool")
	}

	c, ok := objInt.(*boltConn)
	if !ok {
		return nil, errors.New("Unrecognized object in pool: %#v", objInt)
	}
	return c, nil
}

// Release puts a connection back into the pool. A connection carrying
// an unacknowledged failure is reset first, and a connection that does
// not come back to a usable state is destroyed instead of going back
// in.
func (p *boltPool) Release(conn Conn) error {
	c, ok := conn.(*boltConn)
	if !ok {
		return errors.New("Cannot release a connection that did not come from the pool: %#v", conn)
	}

	if c.state == connFailed {
		if err := c.Reset(); err != nil {
			log.Infof("Destroying pooled connection that could not be reset: %s", err)
			return p.pool.InvalidateObject(context.Background(), c)
		}
	}
	if c.state != connReady {
		return p.pool.InvalidateObject(context.Background(), c)
	}

	return p.pool.ReturnObject(context.Background(), c)
}

// Close empties the pool, closing every pooled connection
func (p *boltPool) Close() error {
	p.pool.Close(context.Background())
	return nil
}
