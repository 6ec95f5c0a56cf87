package rpc

import (
	"fmt"
	"net/rpc"

	"caskdb"
)

// Client BitcaskService 的客户端
type Client struct {
	c *rpc.Client
}

func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{c: c}, nil
}

func (c *Client) Put(key, value string) error {
	var reply string
	return c.c.Call(ServiceName+".Put", map[string]string{key: value}, &reply)
}

// PutAll 一次调用写入多条数据
func (c *Client) PutAll(kv map[string]string) error {
	var reply string
	return c.c.Call(ServiceName+".Put", kv, &reply)
}

func (c *Client) Get(key string) (string, bool, error) {
	var reply GetReply
	if err := c.c.Call(ServiceName+".Get", key, &reply); err != nil {
		return "", false, err
	}
	return reply.Value, reply.Found, nil
}

func (c *Client) Delete(key string) error {
	var reply string
	return c.c.Call(ServiceName+".Delete", key, &reply)
}

func (c *Client) ListKeys() ([]string, error) {
	var keys []string
	if err := c.c.Call(ServiceName+".ListKeys", struct{}{}, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *Client) Stat() (caskdb.Stat, error) {
	var stat caskdb.Stat
	err := c.c.Call(ServiceName+".Stat", struct{}{}, &stat)
	return stat, err
}

func (c *Client) Close() error {
	return c.c.Close()
}
