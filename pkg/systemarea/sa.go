package systemarea

import (
	"github.com/go-optical/iso9660kit/pkg/consts"
	"github.com/go-optical/iso9660kit/pkg/info"
)

type SystemArea struct {
	// System Area's use isn't defined in the ISO 9660 standard. It is reserved for system use.
	Contents [consts.ISO9660_SECTOR_SIZE * consts.ISO9660_SYSTEM_AREA_SECTORS]byte
}

func (sa *SystemArea) Type() string {
	return "System Area"
}

func (sa *SystemArea) Name() string {
	return "System Area"
}

func (sa *SystemArea) Description() string {
	return "Reserved system area (first 16 sectors)"
}

func (sa *SystemArea) Properties() map[string]interface{} {
	return map[string]interface{}{
		"Sectors": consts.ISO9660_SYSTEM_AREA_SECTORS,
	}
}

func (sa *SystemArea) Offset() int64 {
	return 0
}

func (sa *SystemArea) Size() int {
	return consts.ISO9660_SECTOR_SIZE * consts.ISO9660_SYSTEM_AREA_SECTORS
}

func (sa *SystemArea) GetObjects() []info.ImageObject {
	return []info.ImageObject{sa}
}

func (sa *SystemArea) Marshal() ([]byte, error) {
	return sa.Contents[:], nil
}
