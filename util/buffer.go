package util

import (
	"bytes"
	"io"
)

const defaultBufferSize = 1024

//Buffer 带读写游标的可增长缓冲区，0 <= readPos <= writePos <= len(store)
type Buffer struct {
	store    []byte
	readPos  int
	writePos int
}

//NewBuffer 创建缓冲区，size <= 0 时使用默认大小
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Buffer{store: make([]byte, size)}
}

//Len 可读数据长度
func (b *Buffer) Len() int {
	return b.writePos - b.readPos
}

//Cap 底层存储大小
func (b *Buffer) Cap() int {
	return len(b.store)
}

func (b *Buffer) tailVacancy() int {
	return len(b.store) - b.writePos
}

func (b *Buffer) headVacancy() int {
	return b.readPos
}

//ensure 保证尾部至少有n字节可写
// 尾部够用直接用；尾部加头部够用则把数据搬到开头；否则扩容到刚好够用
func (b *Buffer) ensure(n int) {
	if b.tailVacancy() >= n {
		return
	}

	if b.tailVacancy()+b.headVacancy() >= n {
		size := b.Len()
		copy(b.store, b.store[b.readPos:b.writePos])
		b.readPos = 0
		b.writePos = size
		return
	}

	store := make([]byte, b.writePos+n)
	copy(store, b.store[:b.writePos])
	b.store = store
}

//Write 写入数据，不会返回错误
func (b *Buffer) Write(p []byte) (int, error) {
	b.ensure(len(p))
	n := copy(b.store[b.writePos:], p)
	b.writePos += n
	return n, nil
}

//WriteString .
func (b *Buffer) WriteString(s string) (int, error) {
	b.ensure(len(s))
	n := copy(b.store[b.writePos:], s)
	b.writePos += n
	return n, nil
}

//WriteBuffer 把另一个缓冲区的可读数据追加进来，不移动other的读游标
func (b *Buffer) WriteBuffer(other *Buffer) (int, error) {
	return b.Write(other.Peek())
}

//Read 实现io.Reader
func (b *Buffer) Read(p []byte) (int, error) {
	if b.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.store[b.readPos:b.writePos])
	b.readPos += n
	return n, nil
}

//Next 读出最多n个字节，返回的是拷贝
func (b *Buffer) Next(n int) []byte {
	if n > b.Len() {
		n = b.Len()
	}
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	copy(out, b.store[b.readPos:b.readPos+n])
	b.readPos += n
	return out
}

//ReadAll 读出全部可读数据
func (b *Buffer) ReadAll() []byte {
	return b.Next(b.Len())
}

//ReadString 读出全部可读数据并转为字符串
func (b *Buffer) ReadString() string {
	return string(b.ReadAll())
}

//Peek 不移动读游标，返回的切片在下一次写入前有效
func (b *Buffer) Peek() []byte {
	return b.store[b.readPos:b.writePos]
}

//Discard 丢弃n个字节，返回实际丢弃的长度
func (b *Buffer) Discard(n int) int {
	if n > b.Len() {
		n = b.Len()
	}
	if n < 0 {
		n = 0
	}
	b.readPos += n
	if b.readPos == b.writePos {
		b.readPos, b.writePos = 0, 0
	}
	return n
}

//Index 分隔符在可读数据中的起始位置，找不到返回-1
func (b *Buffer) Index(delim []byte) int {
	if len(delim) == 0 {
		return -1
	}
	return bytes.Index(b.Peek(), delim)
}

//ReadUntil 读到分隔符为止（包含分隔符），找不到时不读取并返回nil
func (b *Buffer) ReadUntil(delim []byte) []byte {
	i := b.Index(delim)
	if i < 0 {
		return nil
	}
	return b.Next(i + len(delim))
}

//GetLine 读取一行，包含结尾的 '\n'
func (b *Buffer) GetLine() string {
	return string(b.ReadUntil([]byte{'\n'}))
}

//Reset 清空
func (b *Buffer) Reset() {
	b.readPos, b.writePos = 0, 0
}
