package analyzer

import "fmt"

// Completion temperatures per stage. Classification stages run cooler
// than the generative ones.
const (
	tempCategories = 0.6
	tempSegments   = 0.6
	tempQuestions  = 0.7
	tempAnswers    = 0.8
)

// emptyPagePlaceholder stands in for page text when the fetch produced
// nothing, so the model is told explicitly instead of given a blank.
const emptyPagePlaceholder = "无有效内容"

func categoriesPrompt(pageText string) string {
	if pageText == "" {
		pageText = emptyPagePlaceholder
	}
	return fmt.Sprintf(`作为电商行业专家，请分析以下网页内容，识别出其中主要的产品大类（产业线）。
要求：
1. 输出3-5个最主要的产品大类，使用中文通用术语（如"服装"、"鞋类"、"运动器材"）
2. 每个类别占一行，避免重复或细分品类

网页内容摘要：
%s`, pageText)
}

func segmentsPrompt(pageText, category string) string {
	if pageText == "" {
		pageText = emptyPagePlaceholder
	}
	return fmt.Sprintf(`作为电商行业专家，请分析以下网页中关于"%s"产品的目标用户群体。
要求：
1. 输出3-5个最相关的用户群体，使用中文（如"跑步爱好者"、"青少年"）
2. 每个群体占一行，避免重复或模糊描述

网页内容摘要：
%s`, category, pageText)
}

func questionsPrompt(category, segment string, k int) string {
	return fmt.Sprintf(`作为购物专家，请为%s产品的%s用户生成%d个关于品牌推荐的问题。
要求：
1. 问题必须明确询问品牌推荐
2. 反映该用户群体的核心需求
3. 每个问题不超过25字

示例（服装+时尚达人）:
- 哪些品牌的潮流单品最值得购买？
- 高端商务装推荐什么品牌？
- 运动休闲风格有什么品牌推荐？`, category, segment, k)
}

func answersPrompt(question, category, segment string, k int) string {
	return fmt.Sprintf(`作为%s产品专家，请为%s用户的问题提供%d个专业回答，需包含具体品牌推荐。

问题: "%s"

重要要求:
1. 必须推荐2-3个实际存在的知名品牌（国际或本土品牌均可）
2. 品牌名称必须用双引号包裹（例如 "Nike"、"李宁"）
3. 针对不同预算和需求提供多样化推荐
4. 每个回答包含品牌名称和推荐理由
5. 回答简洁明了，不超过60字

示例回答格式:
- 高端推荐"Gucci"和"Prada"，设计感强；平价选择"ZARA"，更新快款式多
- 专业运动选"Nike"、"Adidas"；性价比考虑"李宁"、"安踏"
- 奢侈品牌: "Louis Vuitton"; 轻奢: "Coach"; 快时尚: "UNIQLO"

注意：品牌名称必须完整且准确，不要使用简称或缩写（例如用"Under Armour"而非"UA"）`, category, segment, k, question)
}
