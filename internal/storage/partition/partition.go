// Пакет partition — раскладка документов по директориям год/месяц.
//
// Документы хранятся в корне хранилища в партициях вида root/2026/08/.
// Партиция вычисляется из момента создания документа и после создания
// не меняется: ссылка на документ включает партицию.
package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/CarlosAHP/AppLaBackend/internal/domain/model"
)

// Partitioner — резолвер директорий-партиций внутри корня хранилища.
type Partitioner struct {
	root string
}

// New создаёт Partitioner и гарантирует существование корня хранилища.
func New(root string) (*Partitioner, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: создание корня %s: %v",
			model.ErrStorageUnavailable, root, err)
	}
	return &Partitioner{root: root}, nil
}

// Root возвращает корень хранилища.
func (p *Partitioner) Root() string {
	return p.root
}

// Rel возвращает относительный путь партиции для момента времени: "2026/08".
func (p *Partitioner) Rel(t time.Time) string {
	return filepath.Join(t.Format("2006"), t.Format("01"))
}

// Resolve возвращает абсолютный путь партиции для момента времени,
// создавая директории при необходимости.
func (p *Partitioner) Resolve(t time.Time) (string, error) {
	dir := filepath.Join(p.root, p.Rel(t))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: создание партиции %s: %v",
			model.ErrStorageUnavailable, dir, err)
	}
	return dir, nil
}

// FullPath превращает относительный путь документа в абсолютный.
func (p *Partitioner) FullPath(rel string) string {
	return filepath.Join(p.root, rel)
}
