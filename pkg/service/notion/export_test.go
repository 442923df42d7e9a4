package notion

import "github.com/jomei/notionapi"

func ConvertBlockForTest(obj notionapi.Block) Block {
	return convertBlock(obj)
}
