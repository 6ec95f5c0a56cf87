package rpc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

var ErrUnknownCommand = errors.New("unknown command")

type Op string

const (
	OpPut    Op = "put"
	OpGet    Op = "get"
	OpDelete Op = "delete"
	OpKeys   Op = "keys"
	OpStat   Op = "stat"
)

// Command 一条解析后的命令行指令
type Command struct {
	Op    Op
	Key   string
	Value string
}

var arity = map[Op]int{
	OpPut:    2,
	OpGet:    1,
	OpDelete: 1,
	OpKeys:   0,
	OpStat:   0,
}

// ParseCommand 按 shell 规则拆分一行输入，支持引号包含空格的 key 和 value，例如
//
//	put "my key" 'some value'
func ParseCommand(line string) (Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}

	op := Op(strings.ToLower(words[0]))
	if op == "del" {
		op = OpDelete
	}
	n, ok := arity[op]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, words[0])
	}
	args := words[1:]
	if len(args) != n {
		return Command{}, fmt.Errorf("%s takes %d argument(s), got %d", op, n, len(args))
	}

	cmd := Command{Op: op}
	if n > 0 {
		cmd.Key = args[0]
	}
	if n > 1 {
		cmd.Value = args[1]
	}
	return cmd, nil
}

// Execute 通过客户端执行命令，返回要展示给用户的结果
func (cmd Command) Execute(c *Client) (string, error) {
	switch cmd.Op {
	case OpPut:
		if err := c.Put(cmd.Key, cmd.Value); err != nil {
			return "", err
		}
		return "OK", nil
	case OpGet:
		v, found, err := c.Get(cmd.Key)
		if err != nil {
			return "", err
		}
		if !found {
			return "(nil)", nil
		}
		return shellquote.Join(v), nil
	case OpDelete:
		if err := c.Delete(cmd.Key); err != nil {
			return "", err
		}
		return "OK", nil
	case OpKeys:
		keys, err := c.ListKeys()
		if err != nil {
			return "", err
		}
		return shellquote.Join(keys...), nil
	case OpStat:
		stat, err := c.Stat()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("keys=%d size=%d reclaimable=%d", stat.KeyNum, stat.DataFileSize, stat.ReclaimableSize), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Op)
}
